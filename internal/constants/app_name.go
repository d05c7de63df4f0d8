package constants

const (
	AppName            = "shopeasy"
	AppCartService     = "cart-service"
	AppProductService  = "product-service"
	AppUserService     = "user-service"
	AppCatalogClient   = "catalog-client"
	AppMainShopeasy    = "main shopeasy"
	ConfigNameShopeasy = "shopeasy"
)
