package config

// DefaultTickers lists the tickers analyzed when none are configured.
var DefaultTickers = []string{"SPX", "NDX", "SPY", "QQQ", "GC", "XAUUSD"}

// ValidTickers lists every supported ticker.
var ValidTickers = map[string]bool{
	"SPX": true, "NDX": true, "RUT": true, "SPY": true, "QQQ": true, "IWM": true,
	"VIX": true, "AAPL": true, "TSLA": true, "NVDA": true, "META": true,
	"AMZN": true, "GOOGL": true, "MSFT": true,
	"ES": true, "NQ": true, "GC": true, "SI": true, "CL": true,
	"XAUUSD": true, "BTC": true, "ETH": true,
}

var validLoaders = map[string]bool{"memory": true, "stream": true}

var validPlayback = map[string]bool{"": true, "exhaust": true, "rotation": true}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
