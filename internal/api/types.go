package api

// ScanRequest is the body of POST /v1/scans.
type ScanRequest struct {
	Values     []int32 `json:"values"`
	Mode       string  `json:"mode,omitempty"`
	Strategy   string  `json:"strategy,omitempty"`
	Background *bool   `json:"background,omitempty"`
}

// ScanJob is a scan as stored and returned by the API.
type ScanJob struct {
	ID          string         `json:"id"`
	Object      string         `json:"object"`
	CreatedAt   int64          `json:"created_at,omitempty"`
	Status      string         `json:"status"`
	Background  bool           `json:"background,omitempty"`
	CompletedAt *int64         `json:"completed_at,omitempty"`
	Mode        string         `json:"mode"`
	Strategy    string         `json:"strategy"`
	N           int            `json:"n"`
	Output      []int32        `json:"output,omitempty"`
	Error       *ResponseError `json:"error,omitempty"`
}

type ScaleAccumulateRequest struct {
	Alpha float32   `json:"alpha"`
	X     []float32 `json:"x"`
	Y     []float32 `json:"y"`
}

type ScaleAccumulateResponse struct {
	Object string    `json:"object"`
	N      int       `json:"n"`
	Y      []float32 `json:"y"`
}

type HealthResponse struct {
	Status            string `json:"status"`
	Backend           string `json:"backend"`
	Strategy          string `json:"strategy"`
	GroupSize         int    `json:"group_size"`
	ElementsPerWorker int    `json:"elements_per_worker"`
	Version           string `json:"version,omitempty"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}

// DeleteScanResp acknowledges DELETE /v1/scans/:id.
type DeleteScanResp struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}
