// Package dashboard holds the release page served at "/".
//
// The page is a single index.html. Its title comes from the server's
// {{.Title}} substitution; everything else is rendered client side from
// the views streamed over /api/sse: the channel menu per product, the
// selected release with its verdict and one card per check, and the
// status service version in the footer. Deep links use the location
// fragment "#<service>/<product>/<version>", which the page forwards to
// /api/navigate on load and on every hashchange.
package dashboard

import "embed"

// Assets is the page, read by the server at startup.
//
//go:embed assets/*
var Assets embed.FS
