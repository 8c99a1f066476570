package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Goro-naka/koepon-sub001/internal/models"
	"github.com/Goro-naka/koepon-sub001/pkg/errors"
)

// PaymentConfirmation is the payment collaborator's answer for a
// payment reference.
type PaymentConfirmation struct {
	Confirmed bool  `json:"confirmed"`
	Amount    int64 `json:"amount"`
}

// PaymentGateway confirms externally processed payments. Called strictly
// before the atomic settlement phase, never while holding locks.
type PaymentGateway interface {
	ConfirmPayment(ctx context.Context, paymentReference string) (*PaymentConfirmation, error)
}

// DrawEngine runs the randomized item selection for a gacha. The
// selection logic lives outside this service.
type DrawEngine interface {
	ExecuteDrawLogic(ctx context.Context, gachaID uint, count int) ([]models.DrawnItem, error)
}

// HTTPPaymentGateway talks to the payment service over HTTP.
type HTTPPaymentGateway struct {
	baseURL string
	client  *http.Client
}

func NewHTTPPaymentGateway(baseURL string) *HTTPPaymentGateway {
	return &HTTPPaymentGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *HTTPPaymentGateway) ConfirmPayment(ctx context.Context, paymentReference string) (*PaymentConfirmation, error) {
	payload := map[string]string{"payment_reference": paymentReference}
	var confirmation PaymentConfirmation
	if err := postJSON(ctx, g.client, g.baseURL+"/v1/payments/confirm", payload, &confirmation); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTransient, "payment confirmation failed")
	}
	return &confirmation, nil
}

// HTTPDrawEngine talks to the draw randomization service over HTTP.
type HTTPDrawEngine struct {
	baseURL string
	client  *http.Client
}

func NewHTTPDrawEngine(baseURL string) *HTTPDrawEngine {
	return &HTTPDrawEngine{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (e *HTTPDrawEngine) ExecuteDrawLogic(ctx context.Context, gachaID uint, count int) ([]models.DrawnItem, error) {
	payload := map[string]interface{}{"gacha_id": gachaID, "count": count}
	var response struct {
		Items []models.DrawnItem `json:"items"`
	}
	if err := postJSON(ctx, e.client, e.baseURL+"/v1/draws/execute", payload, &response); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTransient, "draw execution failed")
	}
	return response.Items, nil
}

func postJSON(ctx context.Context, client *http.Client, url string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
