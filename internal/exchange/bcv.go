package exchange

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultBCVEndpoint = "https://ve.dolarapi.com/v1/dolares/oficial"

// BCVClient fetches the official USD/VES rate published by the central bank
// through the dolarapi mirror.
type BCVClient struct {
	endpoint   string
	httpClient *http.Client
}

func NewBCVClient(endpoint string) *BCVClient {
	if endpoint == "" {
		endpoint = defaultBCVEndpoint
	}
	return &BCVClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *BCVClient) FetchOfficialRate() (float64, error) {
	resp, err := c.httpClient.Get(c.endpoint)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("error querying BCV rate API: %s", resp.Status)
	}

	var result struct {
		Fuente   string  `json:"fuente"`
		Nombre   string  `json:"nombre"`
		Promedio float64 `json:"promedio"`
	}
	err = json.NewDecoder(resp.Body).Decode(&result)
	if err != nil {
		return 0, err
	}

	if result.Promedio <= 0 {
		return 0, fmt.Errorf("BCV rate API returned a non-positive rate: %f", result.Promedio)
	}
	return result.Promedio, nil
}
