package masking

import "errors"

// ErrSecretLeak is raised by LeakScan when a known secret value
// literally appears in output that was supposed to have been redacted
// (§4.9: "a mandatory end-of-build scan rejects the output").
var ErrSecretLeak = errors.New("masking: secret leak detected in output")
