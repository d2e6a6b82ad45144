package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	config "github.com/nabhajit/bhujal/configs"
	"github.com/nabhajit/bhujal/internal/models"
)

type SMSResponse struct {
	SMSMessageData struct {
		Message    string `json:"Message"`
		Recipients []struct {
			StatusCode int    `json:"statusCode"`
			Number     string `json:"number"`
			Cost       string `json:"cost"`
			Status     string `json:"status"`
			MessageID  string `json:"messageId"`
		} `json:"Recipients"`
	} `json:"SMSMessageData"`
}

// SMSNotifier sends text messages through the Africa's Talking messaging API.
type SMSNotifier struct {
	cfg    config.AfricaTalkingConfig
	client *http.Client
	log    *zap.Logger
}

func NewSMSNotifier(cfg config.AfricaTalkingConfig, log *zap.Logger) *SMSNotifier {
	return &SMSNotifier{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

func (n *SMSNotifier) CustomerRegistered(ctx context.Context, customer models.Customer) error {
	message := fmt.Sprintf("Welcome to Bhujal, %s! You can now register your borewells on the map.", customer.Name)
	return n.send(ctx, customer, message)
}

func (n *SMSNotifier) BorewellRegistered(ctx context.Context, customer models.Customer, borewell models.Borewell) error {
	message := fmt.Sprintf("Your borewell at %s, %s has been registered on Bhujal. Thank you for contributing!",
		borewell.Latitude, borewell.Longitude)
	return n.send(ctx, customer, message)
}

func (n *SMSNotifier) send(ctx context.Context, customer models.Customer, message string) error {
	data := url.Values{}
	data.Set("username", n.cfg.Username)
	data.Set("to", customer.PhoneNumber)
	data.Set("message", message)
	data.Set("from", n.cfg.SenderID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.SMSURL, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create SMS request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("apikey", n.cfg.APIKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("SMS send failed: %w", err)
	}
	defer resp.Body.Close()

	var smsResp SMSResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&smsResp)

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		n.log.Warn("SMS API returned error",
			zap.Uint("customer_id", customer.ID),
			zap.Int("status", resp.StatusCode),
			zap.String("message", smsResp.SMSMessageData.Message),
		)
		return fmt.Errorf("SMS API returned non-success status: %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to decode SMS response: %w", decodeErr)
	}

	n.log.Info("SMS sent", zap.Uint("customer_id", customer.ID), zap.String("status", smsResp.SMSMessageData.Message))
	return nil
}
