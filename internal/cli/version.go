package cli

// osirisVersion is folded into every AIOP export's run_fingerprint
// (§4.9) and reported by "osiris version". cmd/osiris/main.go may
// override this at link time with -ldflags if a release process wants
// to stamp a build tag here instead.
var osirisVersion = "0.1.0-dev"
