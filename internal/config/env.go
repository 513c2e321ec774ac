package config

import "os"

// osLookupEnv is a var so tests can substitute a fake environment without
// mutating process-global state via os.Setenv.
var osLookupEnv = os.LookupEnv
