package models

// MCoinDetail is the richer per-coin record backing the detail view.
type MCoinDetail struct {
	MCoinSummary
	Description      string   `json:"description"`
	Homepage         string   `json:"homepage"`
	BlockchainSite   string   `json:"blockchain_site"`
	Categories       []string `json:"categories"`
	GenesisDate      string   `json:"genesis_date"`
	HashingAlgorithm string   `json:"hashing_algorithm"`
	ATH              *float64 `json:"ath"`
	ATHDate          string   `json:"ath_date"`
	ATL              *float64 `json:"atl"`
	ATLDate          string   `json:"atl_date"`
	LastUpdated      string   `json:"last_updated"`
}
