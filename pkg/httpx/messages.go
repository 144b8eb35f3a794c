package httpx

import (
	"strings"

	"github.com/aussiebroadwan/aqar/pkg/rbac"
)

// Message is a user-facing Arabic/English message pair.
type Message struct {
	Ar string
	En string
}

// Machine-readable rejection codes.
const (
	CodeCSRFMissing  = "CSRF_MISSING"
	CodeCSRFMismatch = "CSRF_MISMATCH"
	CodeValidation   = "VALIDATION_ERROR"
	CodeRateLimited  = "RATE_LIMITED"
)

var (
	MsgUnauthorized   = Message{Ar: "غير مصرح", En: "Unauthorized"}
	MsgInvalidClaims  = Message{Ar: "بيانات الجلسة غير صالحة", En: "Invalid token claims"}
	MsgSessionExpired = Message{Ar: "انتهت صلاحية الجلسة، يرجى تسجيل الدخول مرة أخرى", En: "Session expired"}
	MsgInvalidSession = Message{Ar: "جلسة غير صالحة", En: "Invalid session"}

	MsgAdminOnly        = Message{Ar: "هذا القسم مخصص للمدراء فقط", En: "This section is restricted to administrators"}
	MsgPermissionDenied = Message{Ar: "ليس لديك صلاحية للقيام بهذا الإجراء", En: "Permission denied"}

	MsgCSRFMissing  = Message{Ar: "رمز الحماية مفقود", En: "CSRF token missing"}
	MsgCSRFMismatch = Message{Ar: "رمز الحماية غير صالح", En: "CSRF token mismatch"}

	MsgValidation         = Message{Ar: "البيانات المدخلة غير صالحة", En: "Invalid input"}
	MsgInvalidCredentials = Message{Ar: "البريد الإلكتروني أو كلمة المرور غير صحيحة", En: "Invalid email or password"}
	MsgInvalidRole        = Message{Ar: "الدور غير صالح", En: "Invalid role"}
	MsgUserNotFound       = Message{Ar: "المستخدم غير موجود", En: "User not found"}
	MsgRoleEscalation     = Message{Ar: "لا تملك صلاحية منح أو سحب هذا الدور", En: "You may not grant or revoke this role"}
	MsgTooManyRequests    = Message{Ar: "طلبات كثيرة جداً، يرجى المحاولة لاحقاً", En: "Too many requests, please try again later"}
	MsgInternal           = Message{Ar: "حدث خطأ في الخادم", En: "Internal server error"}
)

// RoleRestricted names the roles allowed into a section, using the labels
// registered for them.
func RoleRestricted(reg *rbac.Registry, roles []rbac.Role) Message {
	ar := make([]string, 0, len(roles))
	en := make([]string, 0, len(roles))
	for _, r := range roles {
		l := reg.Label(r)
		ar = append(ar, l.Ar)
		en = append(en, l.En)
	}
	return Message{
		Ar: "هذا القسم متاح فقط لـ: " + strings.Join(ar, "، "),
		En: "This section is only available to: " + strings.Join(en, ", "),
	}
}
