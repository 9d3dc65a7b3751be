package daemon

// statusResponse is the JSON body of GET /api/status.
type statusResponse struct {
	Running         bool     `json:"running"`
	PID             int      `json:"pid"`
	Bind            string   `json:"bind"`
	StatsDBPath     string   `json:"stats_db_path"`
	LockFilePath    string   `json:"lock_file_path"`
	TargetLanguages []string `json:"target_languages"`
}

// languageEntry is one offered target language.
type languageEntry struct {
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

type languagesResponse struct {
	Languages []languageEntry `json:"languages"`
}

// recordEntry mirrors one stats.Record for GET /api/stats.
type recordEntry struct {
	ID             string `json:"id"`
	Filename       string `json:"filename"`
	TargetLanguage string `json:"target_language"`
	Mode           string `json:"mode"`
	TotalBlocks    int    `json:"total_blocks"`
	TotalChunks    int    `json:"total_chunks"`
	RetryCount     int    `json:"retry_count"`
	FailedChunks   int    `json:"failed_chunks"`
	DurationMS     int64  `json:"duration_ms"`
	Status         string `json:"status"`
	Error          string `json:"error,omitempty"`
	CreatedAt      string `json:"created_at"`
}

type summaryEntry struct {
	TotalRequests     int `json:"total_requests"`
	CompletedRequests int `json:"completed_requests"`
	FailedRequests    int `json:"failed_requests"`
	TotalBlocks       int `json:"total_blocks"`
	TotalRetries      int `json:"total_retries"`
	TotalFailedChunks int `json:"total_failed_chunks"`
}

type statsResponse struct {
	Totals summaryEntry  `json:"totals"`
	Recent []recordEntry `json:"recent"`
}
