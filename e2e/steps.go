package e2e

import (
	"github.com/cucumber/godog"

	"siappa/e2e/steps/cases"
	"siappa/e2e/steps/common"
	"siappa/e2e/steps/ratelimit"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	cases.RegisterSteps(ctx, tc)
	ratelimit.RegisterSteps(ctx, tc)
}
