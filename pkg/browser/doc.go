// Package browser manages the lifecycle of one browser session per test.
//
// A session owns an engine instance, one browsing context and one page. The
// Manager acquires them in order, starts video recording and tracing, hands the
// page to the test body, and tears everything down again no matter how the
// body ended.
//
// # Session Lifecycle
//
//	UNINITIALIZED -> ENGINE_LAUNCHED -> CONTEXT_CREATED -> PAGE_READY
//	  -> TRACING_ACTIVE -> IN_TEST
//	  -> TEARDOWN_TRACING -> TEARDOWN_CONTEXT -> TEARDOWN_ENGINE
//	  -> TEARDOWN_VIDEO -> CLOSED
//
// Every path ends in CLOSED. Teardown only visits the steps whose resource was
// actually acquired, so a session whose engine never launched goes straight
// from UNINITIALIZED to CLOSED.
//
// Setup failures are returned as *SetupError after being logged at CRITICAL.
// Teardown failures are collected in a *TeardownReport and logged; they are
// never returned as the test's error.
//
// # Usage
//
// Callback style:
//
//	err := manager.Run(ctx, desc, t.Name(), func(ctx context.Context, s *browser.Session) error {
//	    _, err := s.Page().Goto(cfg.BaseURL)
//	    return err
//	})
//
// Open/Close style, for t.Cleanup:
//
//	session, err := manager.Open(ctx, desc, t.Name())
//	require.NoError(t, err)
//	t.Cleanup(func() { session.Close() })
//
// # Evidence
//
// Each session records a video into the video directory at a fixed 1920x1080
// capture size and a trace archive into the trace directory:
//
//	traceview_<20060102_150405>_<engine>_<device|WxH|default>[_<test>].zip
//	<20060102-150405>[_<test>].webm
//
// Names are reserved through evidence.Namer, so two sessions started in the
// same second never overwrite each other's files.
package browser
