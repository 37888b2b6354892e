package logger

import (
	"go.uber.org/zap"
)

var Log *zap.SugaredLogger

func Init() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	Log = logger.Sugar()
}

// Sync 刷出缓冲的日志，进程退出前调用
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
