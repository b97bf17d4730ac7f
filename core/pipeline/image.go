package pipeline

import "fmt"

// xgboostVersion is the managed XGBoost framework image version.
const xgboostVersion = "1.7-1"

// xgboostRegistry maps a region to the account hosting the managed XGBoost
// framework images there.
var xgboostRegistry = map[string]string{
	"us-east-1":      "683313688378",
	"us-east-2":      "257758044811",
	"us-west-1":      "746614075791",
	"us-west-2":      "246618743249",
	"ca-central-1":   "341280168497",
	"eu-west-1":      "141502667606",
	"eu-west-2":      "764974769150",
	"eu-central-1":   "492215442770",
	"eu-north-1":     "662702820516",
	"ap-northeast-1": "354813040037",
	"ap-northeast-2": "366743142698",
	"ap-southeast-1": "121021644041",
	"ap-southeast-2": "783357654285",
	"ap-south-1":     "720646828776",
	"sa-east-1":      "737474898029",
}

// ImageURI resolves the managed XGBoost training image for a region.
func ImageURI(region string) (string, error) {
	account, ok := xgboostRegistry[region]
	if !ok {
		return "", fmt.Errorf("no XGBoost image registry known for region %q", region)
	}
	return fmt.Sprintf("%s.dkr.ecr.%s.amazonaws.com/sagemaker-xgboost:%s", account, region, xgboostVersion), nil
}
