package autoload

import (
	configx "github.com/pattadon/shoppilot/pkg/config"
	logx "github.com/pattadon/shoppilot/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
