package webhooks

type statusResponse struct {
	Status string `json:"status"`
}
