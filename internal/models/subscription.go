package models

import "time"

// Subscription - запомненный адрес ленты с кешированными полями для отображения.
// URL является естественным ключом: двух подписок с одним URL не бывает.
type Subscription struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Image       string    `json:"image"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// SubscriptionDocument - формат файла хранилища подписок.
type SubscriptionDocument struct {
	Subscriptions []Subscription `json:"subscriptions"`
}
