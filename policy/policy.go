package policy

import "github.com/blogem/registros/models"

// Permission names an action guarded by role.
type Permission string

const (
	ReadRecords   Permission = "read-records"
	ExportRecords Permission = "export-records"
	ImportRecords Permission = "import-records"
	ViewAuditLog  Permission = "view-audit-log"
)

var grants = map[models.Role]map[Permission]bool{
	models.RoleUploader: {
		ReadRecords:   true,
		ExportRecords: true,
		ImportRecords: true,
		ViewAuditLog:  true,
	},
	models.RoleViewer: {
		ReadRecords:   true,
		ExportRecords: true,
	},
}

// Can reports whether role holds permission. Unknown roles hold nothing.
func Can(role models.Role, permission Permission) bool {
	return grants[role][permission]
}
