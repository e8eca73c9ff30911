package common

// TokenEnvVar is the environment variable the CLI reads an access token from
// when no -token flag is given.
const TokenEnvVar = "SASSET_TOKEN"
