package ldb

import "github.com/quasarnet/quasard/logger"

var log, _ = logger.Get(logger.SubsystemTags.LVDB)
