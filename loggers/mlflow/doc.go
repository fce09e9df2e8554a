// Package mlflow is the tracking-store backend: runs, metric history, params,
// and artifacts are laid out on disk the way MLflow's file store does, rooted
// at the path of a file:// tracking URI. It is the only backend with video
// logging; videos are encoded as animated GIF artifacts under the videos
// namespace.
package mlflow
