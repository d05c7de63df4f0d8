package log

const (
	KeyAppName          = "app"
	KeyRequestID        = "requestId"
	KeyTraceID          = "traceId"
	KeySpanID           = "spanId"
	KeyProcess          = "process"
	KeyEmail            = "email"
	KeyTag              = "tag"
	KeyRequest          = "request"
	KeyRequestBody      = "requestBody"
	KeyRequestHeader    = "requestHeader"
	KeyRequestHost      = "host"
	KeyRequestIp        = "requesterIP"
	KeyRequestMethod    = "requestMethod"
	KeyRequestURI       = "requestURI"
	KeyRequestURL       = "requestURL"
	KeyConfig           = "config"
	KeyCacheKey         = "cacheKey"
	KeyProduct          = "product"
	KeyProducts         = "products"
	KeyProductID        = "productId"
	KeyProductIDs       = "productIds"
	KeyLimit            = "limit"
	KeyPage             = "page"
	KeyStatusCode       = "statusCode"
	KeyIntent           = "intent"
	KeyCartLines        = "cartLines"
	KeyCartVersion      = "cartVersion"
	KeyCartTotal        = "cartTotal"
	KeyFetchOutcome     = "fetchOutcome"
	KeyCredential       = "credential"
	KeyCredentialDriver = "credentialDriver"
	KeySubscriberID     = "subscriberId"
)
