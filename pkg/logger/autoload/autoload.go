// Package autoload configures the global logger from LOG_* environment
// variables as a side effect of being imported.
package autoload

import (
	"github.com/avtoassist/warranty-agent/pkg/config"
	logx "github.com/avtoassist/warranty-agent/pkg/logger"
)

func init() {
	logx.Init(*config.MustNew[logx.Config]("LOG"))
}
