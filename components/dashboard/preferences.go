package dashboard

// DefaultPreferences returns the preferences a fresh store starts with.
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		UserID:           defaultUserID,
		Theme:            ThemeLight,
		DefaultTimeRange: TimeRange7d,
		Notifications:    &NotificationPreferences{Enabled: true},
	}
}

// Apply merges the set fields of u into prefs. Nested values are replaced,
// not merged.
func (u PreferencesUpdate) Apply(prefs UserPreferences) UserPreferences {
	out := prefs.Clone()
	if u.UserID != nil {
		out.UserID = *u.UserID
	}
	if u.Theme != nil {
		out.Theme = *u.Theme
	}
	if u.DefaultDashboardID != nil {
		out.DefaultDashboardID = *u.DefaultDashboardID
	}
	if u.DefaultTimeRange != nil {
		out.DefaultTimeRange = *u.DefaultTimeRange
	}
	if u.CustomMetrics != nil {
		out.CustomMetrics = append([]MetricType(nil), u.CustomMetrics...)
	}
	if u.Notifications != nil {
		notifications := *u.Notifications
		out.Notifications = &notifications
	}
	return out
}

// IsZero reports whether the update sets nothing.
func (u PreferencesUpdate) IsZero() bool {
	return u.UserID == nil &&
		u.Theme == nil &&
		u.DefaultDashboardID == nil &&
		u.DefaultTimeRange == nil &&
		u.CustomMetrics == nil &&
		u.Notifications == nil
}

func (p UserPreferences) Clone() UserPreferences {
	out := p
	if p.CustomMetrics != nil {
		out.CustomMetrics = append([]MetricType(nil), p.CustomMetrics...)
	}
	if p.Notifications != nil {
		notifications := *p.Notifications
		out.Notifications = &notifications
	}
	return out
}
