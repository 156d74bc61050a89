package rbac

const (
	PermTestPublish = "test:publish"
	PermTestView    = "test:view"
	PermTestViewKey = "test:view-key"

	PermSubmissionCreate  = "submission:create"
	PermSubmissionViewOwn = "submission:view-own"
	PermSubmissionViewAll = "submission:view-all"

	PermRecordingUpload = "recording:upload"
	PermEventsRead      = "events:read"
)

// Default policy.
var RolePermissions = map[string][]string{
	"student": {
		PermTestView,
		PermSubmissionCreate,
		PermSubmissionViewOwn,
		PermRecordingUpload,
	},
	"teacher": {
		PermTestPublish,
		PermTestView,
		PermTestViewKey,
		PermSubmissionViewAll,
		PermEventsRead,
	},
	"admin": {
		"*", // everything
	},
}
