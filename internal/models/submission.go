package models

// Submission is the payload the scraping client posts for one instrument.
// Every sub-batch is optional; raw field values arrive as the scraped text
// and are normalized by the mappers.
type Submission struct {
	TickerSymbol  string            `json:"tickerSymbol"`
	Transactions  []RawTransaction  `json:"transactions,omitempty"`
	Interests     []RawInterest     `json:"interests,omitempty"`
	Historical    *HistoricalRef    `json:"historical,omitempty"`
	Announcements []RawAnnouncement `json:"announcements,omitempty"`
	Overview      *RawOverview      `json:"overview,omitempty"`
}

// RawTransaction is a scraped director transaction before normalization.
type RawTransaction struct {
	Date            string `json:"date"`
	DirectorName    string `json:"director_name"`
	TransactionType string `json:"transaction_type"`
	Amount          string `json:"amount"`
	Price           string `json:"price"`
	Value           string `json:"value"`
	Notes           string `json:"notes"`
}

// RawInterest is a scraped director shareholding interest.
type RawInterest struct {
	Director       string `json:"director"`
	LastNotice     string `json:"last_notice"`
	DirectShares   string `json:"direct_shares"`
	IndirectShares string `json:"indirect_shares"`
	Options        string `json:"options"`
	Convertibles   string `json:"convertibles"`
}

// HistoricalRef points at a previously written delimited price file
// (header row plus comma-separated data rows).
type HistoricalRef struct {
	FilePath string `json:"file_path"`
}

// RawAnnouncement is a scraped regulatory announcement.
type RawAnnouncement struct {
	Date           string `json:"date"`
	TimeOfDay      string `json:"time"`
	Heading        string `json:"heading"`
	Pages          string `json:"pages"`
	URL            string `json:"url"`
	FileName       string `json:"filename"`
	FileSize       string `json:"file_size"`
	PriceSensitive bool   `json:"price_sensitive"`
	Downloaded     bool   `json:"downloaded"`
}

// RawOverview is the scraped company overview block.
type RawOverview struct {
	MarketCap         string `json:"market_cap"`
	Sector            string `json:"sector"`
	EPS               string `json:"eps"`
	DPS               string `json:"dps"`
	BookValuePerShare string `json:"book_value_per_share"`
	SharesIssued      string `json:"shares_issued"`
	Website           string `json:"website"`
	Auditor           string `json:"auditor"`
	ListingDate       string `json:"listing_date"`
}
