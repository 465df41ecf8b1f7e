package config

import "github.com/urfave/cli/v2"

// Flag categories group --help output the way the teacher's
// internal/flags/categories.go groups gtos flags.
const (
	CategoryHTTP        = "HTTP"
	CategoryMetadata    = "KEYS AND METADATA"
	CategorySlashing    = "SLASHING PROTECTION"
	CategoryVault       = "CLOUD VAULTS"
	CategoryAPI         = "API SURFACES"
	CategoryCommitBoost = "COMMIT-BOOST"
	CategoryLogging     = "LOGGING AND DEBUGGING"
	CategoryMisc        = "MISC"
)

func init() {
	cli.HelpFlag.(*cli.BoolFlag).Category = CategoryMisc
	cli.VersionFlag.(*cli.BoolFlag).Category = CategoryMisc
}
