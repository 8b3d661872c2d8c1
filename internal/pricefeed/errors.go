package pricefeed

import "errors"

var (
	ErrNotFound    = errors.New("no price data for this ticker")
	ErrRateLimited = errors.New("rate limited by price feed")
	ErrAuthFailed  = errors.New("price feed authentication failed")
)
