package usecase_test

import (
	"testing"

	"github.com/Octonove/octo-user-copy/pkg/usecase"
	"github.com/m-mizutani/gt"
)

func TestMetaFilters(t *testing.T) {
	t.Run("allow rules", func(t *testing.T) {
		f := usecase.AnyOf(usecase.AllowKeys("locale", "nickname"), usecase.AllowPrefixes("wp_", "", "edd_"))
		gt.Bool(t, f.AllowMeta("locale")).True()
		gt.Bool(t, f.AllowMeta("wp_user_level")).True()
		gt.Bool(t, f.AllowMeta("edd_customer")).True()
		gt.Bool(t, f.AllowMeta("first_name")).False()
		gt.Bool(t, f.AllowMeta("")).False()
	})

	t.Run("deny rules", func(t *testing.T) {
		f := usecase.AllOf(usecase.DenyKeys("session_tokens"), usecase.DenyCapabilityKeys("wp_capabilities"))
		gt.Bool(t, f.AllowMeta("locale")).True()
		gt.Bool(t, f.AllowMeta("session_tokens")).False()
		gt.Bool(t, f.AllowMeta("wp_capabilities")).False()
		gt.Bool(t, f.AllowMeta("site2_capabilities")).False()
		gt.Bool(t, f.AllowMeta("wp_user_level")).True()
	})

	t.Run("empty chains", func(t *testing.T) {
		gt.Bool(t, usecase.AnyOf().AllowMeta("x")).False()
		gt.Bool(t, usecase.AllOf().AllowMeta("x")).True()
	})
}

func TestPolicyForPrefix(t *testing.T) {
	p := usecase.PolicyForPrefix("site2_")
	gt.Value(t, p.CapabilitiesKey()).Equal("site2_capabilities")
	gt.Value(t, p.UserLevelKey()).Equal("site2_user_level")
	gt.Array(t, p.ImportDeniedMetaKeys).Has("site2_user-settings")
	gt.Array(t, p.ExportMetaPrefixes).Has("site2_")
	gt.Bool(t, p.IsSystemRole("administrator")).True()
	gt.Bool(t, p.IsSystemRole("shop_manager")).False()
}
