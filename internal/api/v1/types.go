package v1

// importRequest is the optional body of the import webhook.
type importRequest struct {
	Title         string `json:"title" validate:"max=512"`
	SeasonEpisode string `json:"season_episode" validate:"omitempty,max=32"`
}

type acceptedResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type runResponse struct {
	RunID            string  `json:"run_id"`
	Trigger          string  `json:"trigger"`
	Since            *string `json:"since,omitempty"`
	ServersProcessed int     `json:"servers_processed"`
	ServersSkipped   int     `json:"servers_skipped"`
	ItemsQueued      int     `json:"items_queued"`
	BatchesSucceeded int     `json:"batches_succeeded"`
	BatchesFailed    int     `json:"batches_failed"`
	StartedAt        string  `json:"started_at"`
	ElapsedSeconds   float64 `json:"elapsed_seconds"`
}

type listRunsResponse struct {
	Items []runResponse `json:"items"`
	Total int           `json:"total"`
}

type statusResponse struct {
	Status        string       `json:"status"`
	Enabled       bool         `json:"enabled"`
	Running       bool         `json:"running"`
	Reason        string       `json:"reason,omitempty"`
	PendingImport *string      `json:"pending_import,omitempty"`
	LastRun       *runResponse `json:"last_run,omitempty"`
}
