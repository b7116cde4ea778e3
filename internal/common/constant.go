package common

// APIKeyHeaderName carries the static key expected by the wallet verification API.
const APIKeyHeaderName = "X-API-Key"

// RequestIDHeaderName is echoed back on every HTTP response of the server.
const RequestIDHeaderName = "X-Request-ID"

// DefaultRole is assigned to users created without an explicit role.
const DefaultRole = "User"
