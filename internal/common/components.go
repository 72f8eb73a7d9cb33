package common

const (
	ComponentCrawler   = "crawler"
	ComponentLedger    = "ledger"
	ComponentProcessor = "processor"
	ComponentStore     = "store"
	ComponentWatchlist = "watchlist"
	ComponentNotifier  = "notifier"
	ComponentControl   = "control"
)

var AllComponents = map[string]struct{}{
	ComponentCrawler:   {},
	ComponentLedger:    {},
	ComponentProcessor: {},
	ComponentStore:     {},
	ComponentWatchlist: {},
	ComponentNotifier:  {},
	ComponentControl:   {},
}
