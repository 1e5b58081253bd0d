package middleware

import tele "gopkg.in/telebot.v4"

// AdminOptions configures admin-only gating. A zero AdminID disables
// the check entirely.
type AdminOptions struct {
	AdminID  int64
	OnReject tele.HandlerFunc
}

// WithAdminCheck gates a handler behind the admin id when adminOnly is
// set. Rejected invocations are silently dropped unless OnReject is
// provided.
func WithAdminCheck(opts AdminOptions, adminOnly bool, handler tele.HandlerFunc) tele.HandlerFunc {
	if !adminOnly || opts.AdminID == 0 {
		return handler
	}
	return func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil || sender.ID != opts.AdminID {
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
		return handler(c)
	}
}
