//go:build e2e

// Package e2e drives the real site. Run with:
//
//	ENVIRONMENT=qa go test -tags e2e ./e2e/...
package e2e

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/entrhq/uitest/pkg/browser"
	"github.com/entrhq/uitest/pkg/config"
	"github.com/entrhq/uitest/pkg/harness"
	"github.com/entrhq/uitest/pkg/locators"
	"github.com/entrhq/uitest/pkg/pages"
)

var suite *harness.Suite

// descriptors mirrors the default run matrix.
var descriptors []browser.Descriptor

func TestMain(m *testing.M) {
	var err error
	suite, err = harness.Bootstrap(harness.Options{
		Load: config.LoadOptions{ProjectRoot: os.Getenv(config.EnvProjectRoot)},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	for _, e := range config.DefaultMatrix().Sessions {
		desc, err := browser.DescriptorFromEntry(e)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			suite.Close()
			os.Exit(1)
		}
		descriptors = append(descriptors, desc)
	}

	code := m.Run()
	if _, _, err := suite.WriteReport(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	suite.Close()
	os.Exit(code)
}

// eachDescriptor runs fn once per matrix entry, each in its own session.
func eachDescriptor(t *testing.T, fn func(t *testing.T, p *pages.BasePage)) {
	for _, desc := range descriptors {
		desc := desc
		t.Run(desc.String(), func(t *testing.T) {
			fn(t, suite.Page(t, desc))
		})
	}
}

func TestEnterHome(t *testing.T) {
	eachDescriptor(t, func(t *testing.T, p *pages.BasePage) {
		require.NoError(t, harness.SetUpHome(p))
	})
}

func TestHomeElements(t *testing.T) {
	eachDescriptor(t, func(t *testing.T, p *pages.BasePage) {
		require.NoError(t, harness.SetUpHome(p))
		require.NoError(t, harness.HomeSmoke(p))
	})
}

func TestHomeRedirects(t *testing.T) {
	names := []locators.Name{
		locators.HomePopularMakeImage,
		locators.HomePopularModelImage,
		locators.HomeOverallImage,
	}
	for _, name := range names {
		t.Run(string(name), func(t *testing.T) {
			eachDescriptor(t, func(t *testing.T, p *pages.BasePage) {
				require.NoError(t, harness.SetUpHome(p))
				for _, r := range harness.HomeRedirects(p) {
					if r.Name == name {
						require.NoError(t, harness.FollowRedirect(p, r))
					}
				}
			})
		})
	}
}

func TestRegister(t *testing.T) {
	eachDescriptor(t, func(t *testing.T, p *pages.BasePage) {
		require.NoError(t, harness.SetUpRegister(p))
	})
}

func TestAPIReachable(t *testing.T) {
	if suite.Config.APIURL == "" {
		t.Skip("API_URL is not set")
	}
	resp, err := suite.API(t).Get(suite.Config.APIURL)
	require.NoError(t, err)
	require.Less(t, resp.Status(), 500)
}
