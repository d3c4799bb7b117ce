package domain

// Consumer maps a customer email to the gateway tokenization consumer
type Consumer struct {
	CustomerEmail string `json:"customer_email"`
	ConsumerID    string `json:"consumer_id"`
	ID            int64  `json:"id"`
}
