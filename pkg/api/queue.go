package api

import (
	"github.com/hasanerken/aiqueue"
)

type GetStatisticsResponse struct {
	aiqueue.Statistics
}

type ClearResponse struct {
	Removed int `json:"removed"`
}
