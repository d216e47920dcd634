package contract

import "errors"

var (
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrProductNotFound    = errors.New("product not found")
	ErrQuoteParseEmpty    = errors.New("quote selection yielded no valid lines")
	ErrArtifactNotFound   = errors.New("quote artifact not found")
)
