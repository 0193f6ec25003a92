package core

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category `json:"category"`
	Amount   Money    `json:"amount"`
	Count    int      `json:"count"`
}

// DailyAmount is the total spent on one calendar date.
type DailyAmount struct {
	Date   Date  `json:"date"`
	Amount Money `json:"amount"`
}
