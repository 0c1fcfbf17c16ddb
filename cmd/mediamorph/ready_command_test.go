package main

import (
	"testing"

	"mediamorph/internal/api"
)

func TestReadyImageOriginalImmediately(t *testing.T) {
	env := setupCLITestEnv(t)
	env.loginAs(t, "user@example.com", "hunter2secret")

	out, _, err := runCLI(t, env, "ready", "image", "3")
	if err != nil {
		t.Fatalf("ready: %v", err)
	}
	requireContains(t, out, "ready")
}

func TestReadyVideoOriginalTracksPreviewGeneration(t *testing.T) {
	env := setupCLITestEnv(t)
	env.loginAs(t, "user@example.com", "hunter2secret")

	env.service.SeedAsset(api.KindVideo, api.MediaAsset{ID: 4, OriginalFilename: "clip.mp4"})

	out, _, err := runCLI(t, env, "ready", "video", "4")
	if err != nil {
		t.Fatalf("ready: %v", err)
	}
	requireContains(t, out, "preview still rendering")

	env.service.SetPreviewPath(api.KindVideo, 4, "/previews/4.mp4")
	out, _, err = runCLI(t, env, "ready", "video", "4")
	if err != nil {
		t.Fatalf("ready after generation: %v", err)
	}
	requireContains(t, out, "ready")
}

func TestReadyRejectsUnknownArtifact(t *testing.T) {
	env := setupCLITestEnv(t)
	env.loginAs(t, "user@example.com", "hunter2secret")

	_, _, err := runCLI(t, env, "ready", "image", "3", "--artifact", "converted-typo")
	if err == nil {
		t.Fatal("expected unknown artifact to be rejected")
	}
	requireContains(t, err.Error(), "unknown artifact")
}

func TestReadyConvertedFollowsJobStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	env.loginAs(t, "user@example.com", "hunter2secret")

	env.service.ScriptJob(api.KindVideo,
		api.ConversionJob{ID: 8, VideoID: 4, Status: api.JobProcessing, Progress: 20})

	out, _, err := runCLI(t, env, "ready", "video", "4", "--conversion", "8")
	if err != nil {
		t.Fatalf("ready: %v", err)
	}
	requireContains(t, out, "still processing")

	env.service.ScriptJob(api.KindVideo,
		api.ConversionJob{ID: 8, VideoID: 4, Status: api.JobFailed, ErrorMessage: "bad input"})
	out, _, err = runCLI(t, env, "ready", "video", "4", "--conversion", "8")
	if err != nil {
		t.Fatalf("ready on failed job: %v", err)
	}
	requireContains(t, out, "bad input")
}
