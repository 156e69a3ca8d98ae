package ports

import "fmt"

// Claves lógicas de los invariantes de unicidad que no cubre un índice de la base.

func TenantSlugKey(slug string) string {
	return "tenant:slug:" + slug
}

func IdentityEmailKey(email string) string {
	return "identity:email:" + email
}

func TenantAdminKey(tenantID string) string {
	return fmt.Sprintf("tenant:%s:admin", tenantID)
}

func InvitationKey(tenantID, email, role string) string {
	return fmt.Sprintf("invite:%s:%s:%s", tenantID, email, role)
}

func WorkerDocumentKey(tenantID, documentID string) string {
	return fmt.Sprintf("tenant:%s:worker-doc:%s", tenantID, documentID)
}
