package catalog

import "time"

type CardSet struct {
	SetName       string `json:"set_name"`
	SetCode       string `json:"set_code"`
	SetRarity     string `json:"set_rarity"`
	SetRarityCode string `json:"set_rarity_code,omitempty"`
	SetPrice      string `json:"set_price,omitempty"`
}

type CardPrice struct {
	CardmarketPrice   string `json:"cardmarket_price,omitempty"`
	TCGPlayerPrice    string `json:"tcgplayer_price,omitempty"`
	EbayPrice         string `json:"ebay_price,omitempty"`
	AmazonPrice       string `json:"amazon_price,omitempty"`
	CoolStuffIncPrice string `json:"coolstuffinc_price,omitempty"`
}

type CanonicalCard struct {
	ID              int64
	Name            string
	NormalizedName  string
	Type            string
	Race            string
	Attribute       string
	Archetype       string
	Atk             *int64
	Def             *int64
	Level           *int64
	Scale           *int64
	LinkValue       *int64
	Description     string
	ImageURL        string
	ImageURLSmall   string
	ImageURLCropped string
	Sets            []CardSet
	Prices          []CardPrice
	UpdatedAt       time.Time
}
