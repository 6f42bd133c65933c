package models

// Firestore collection roots.
const (
	CollProducts = "products"
	CollLogs     = "logs"
	CollUsers    = "users"
)

func ProductPath(productID string) string {
	return CollProducts + "/" + productID
}

func ModulesPath(productID string) string {
	return ProductPath(productID) + "/modules"
}

func ModulePath(productID, moduleID string) string {
	return ModulesPath(productID) + "/" + moduleID
}

// LogPath addresses the log bucket of one UTC calendar day (YYYY-MM-DD).
func LogPath(date string) string {
	return CollLogs + "/" + date
}

func UserPath(uid string) string {
	return CollUsers + "/" + uid
}
