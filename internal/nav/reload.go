package nav

// Reload detection uses two redundant signals: the client's navigation-timing
// hint sent with the request, and the one-shot pending flag armed by the
// unload beacon. The timing signal is unreliable in some embedding contexts,
// so either being true is sufficient; neither takes precedence.

var alwaysPublicPaths = map[string]struct{}{
	"/login":    {},
	"/register": {},
}

// IsAlwaysPublic reports whether the path is reachable without a credential.
func IsAlwaysPublic(path string) bool {
	_, ok := alwaysPublicPaths[path]
	return ok
}

// IsPageReload combines the two reload signals.
func IsPageReload(timingHint, pendingFlag bool) bool {
	return timingHint || pendingFlag
}

// ShouldRedirectToHome decides whether a detected reload collapses the
// navigation to the root. Dynamic routes do not survive a hard reload, so a
// deep link straight after reload would miss the route table; the root is the
// always-statically-registered safe landing point.
func ShouldRedirectToHome(path string, hasToken bool) bool {
	return hasToken && path != "/" && !IsAlwaysPublic(path)
}
