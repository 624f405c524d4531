package catalog

// Store is a connected merchant shop and the credential used to read its
// catalog.
type Store struct {
	ID          string
	ShopDomain  string
	AccessToken string
}
