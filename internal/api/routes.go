package api

import (
	"net/url"
)

// Backend routes, relative to the configured base URL (".../api/v1").
const (
	// Auth
	PathVerifyToken   = "/auth/verify-token"
	PathMe            = "/auth/me"
	PathFCMToken      = "/auth/fcm-token"
	PathLogout        = "/auth/logout"
	PathDeleteAccount = "/auth/account"

	// Users
	PathProfile            = "/users/profile"
	PathCompleteProfile    = "/users/complete-profile"
	PathLocation           = "/users/location"
	PathSwitchMode         = "/users/switch-mode"
	PathToggleAvailability = "/users/toggle-availability"

	// Jobs
	PathJobs          = "/jobs"
	PathMyJobs        = "/jobs/my-jobs"
	PathAvailableJobs = "/jobs/available"

	// Applications
	PathApply            = "/applications/apply"
	PathMyApplications   = "/applications/my-applications"
	PathAcceptedJobs     = "/applications/accepted-jobs"
	PathIncomingRequests = "/applications/incoming-requests"

	// Skill posts
	PathSkillPosts   = "/skill-posts"
	PathMySkillPosts = "/skill-posts/my-posts"

	// Chat
	PathChatRooms = "/chat"
)

func JobPath(id string) string { return "/jobs/" + url.PathEscape(id) }
func CancelJobPath(id string) string { return JobPath(id) + "/cancel" }
func CloseJobPath(id string) string { return JobPath(id) + "/close" }
func ApplicantsPath(id string) string { return JobPath(id) + "/applicants" }
func ApplicationPath(id string) string { return "/applications/" + url.PathEscape(id) }
func CompletePath(id string) string { return "/applications/accepted/" + url.PathEscape(id) + "/complete" }
func RatePath(id string) string { return "/applications/accepted/" + url.PathEscape(id) + "/rate" }
func ChatRoomPath(id string) string { return "/chat/" + url.PathEscape(id) }
func ChatMessagesPath(id string) string { return ChatRoomPath(id) + "/messages" }
func ChatSendPath(id string) string { return ChatRoomPath(id) + "/message" }

func SkillPostPath(id string) string { return "/skill-posts/" + url.PathEscape(id) }
func SkillPostTogglePath(id string) string { return SkillPostPath(id) + "/toggle-active" }
func SkillPostRequestPath(id string) string { return SkillPostPath(id) + "/request" }
