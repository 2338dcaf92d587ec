package Snowflake

import (
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init sets the node id. Calling it after the first GenerateId has no effect.
func Init(workId int64) (err error) {
	once.Do(func() {
		node, err = snowflake.NewNode(workId)
	})
	return
}

func GenerateId() int64 {
	once.Do(func() {
		node, _ = snowflake.NewNode(1)
	})
	return node.Generate().Int64()
}

// GenerateSessionId is the decimal form used in RTSP Session headers.
func GenerateSessionId() string {
	return strconv.FormatInt(GenerateId(), 10)
}
