package models

type PathCount struct {
	SourceChain Chain `json:"source_chain"`
	TargetChain Chain `json:"target_chain"`
	Count       int64 `json:"count"`
}

type RunningStats struct {
	TotalCount               int64             `json:"total_count"`
	CompletedCount           int64             `json:"completed_count"`
	FailedCount              int64             `json:"failed_count"`
	RefundedCount            int64             `json:"refunded_count"`
	VolumeByAsset            map[string]string `json:"volume_by_asset"`
	AverageCompletionSeconds float64           `json:"average_completion_seconds"`
	TopPaths                 []PathCount       `json:"top_paths"`
}
