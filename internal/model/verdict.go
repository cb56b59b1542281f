package model

// VerdictStatus is one of the four terminal recommendation labels.
type VerdictStatus string

const (
	VerdictGreen     VerdictStatus = "GREEN"
	VerdictYellow    VerdictStatus = "YELLOW"
	VerdictRed       VerdictStatus = "RED"
	VerdictTestFirst VerdictStatus = "TEST_FIRST"
)

// Hard-stop flag identifiers. A non-empty flag list unconditionally
// prevents a GREEN verdict and Winner eligibility.
const (
	HardStopLowMerchantTrust = "low_merchant_trust"
	HardStopNoDemandEvidence = "no_demand_evidence"
	HardStopProgramPaused    = "program_paused"
	HardStopHighRefundRate   = "high_refund_rate"
)

// VerdictResult is the overall recommendation with the signals and
// assumptions that make it auditable rather than a black box.
type VerdictResult struct {
	Status         VerdictStatus `json:"status"`
	PrimaryAction  string        `json:"primary_action"`
	HardStopFlags  []string      `json:"hard_stop_flags"`
	TopPros        []string      `json:"top_pros"`
	TopRisks       []string      `json:"top_risks"`
	KeyAssumptions []string      `json:"key_assumptions"`
}
