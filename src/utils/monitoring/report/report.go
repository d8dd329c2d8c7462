package report

type Report struct {
	Run    *RunReport    `json:"run,omitempty"`
	Dealer *DealerReport `json:"dealer,omitempty"`
}
