// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import "github.com/quasarnet/quasard/logger"

var log, _ = logger.Get(logger.SubsystemTags.TXMP)
