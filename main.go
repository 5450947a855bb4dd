package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/df07/go-weekend-raytracer/pkg/config"
	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/loaders"
	"github.com/df07/go-weekend-raytracer/pkg/preview"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
	"github.com/df07/go-weekend-raytracer/pkg/scene"
)

// renderOptions holds the render command flags
type renderOptions struct {
	scene      string
	gltf       string
	configPath string
	width      int
	samples    int
	depth      int
	seed       int64
	workers    int
	chunk      int
	sequential bool
	linear     bool
	output     string
	preview    bool
	scenesDir  string
}

// defaultScenesDir is searched for glTF scenes addressed as gltf:<file>
const defaultScenesDir = "scenes"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "raytracer",
		Short:        "Monte-Carlo path tracer for sphere scenes",
		SilenceUsage: true,
	}
	root.AddCommand(newRenderCmd(), newScenesCmd(), newPreviewCmd(), newExportCmd(), newConfigCmd())
	return root
}

func newRenderCmd() *cobra.Command {
	opts := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a scene to an image file",
		Long: "Render a built-in scene or a glTF sphere scene.\n" +
			"Settings come from the scene, then the --config file, then explicit flags.\n" +
			"Without --output the image is saved to output/<scene>/render_<timestamp>.png.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := core.NewWriterLogger(cmd.ErrOrStderr(), "render")
			return runRender(cmd.Context(), cmd, opts, cmd.OutOrStdout(), logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.scene, "scene", "s", "final", "built-in scene "+fmt.Sprint(scene.Names())+" or gltf:<file> from --scenes-dir")
	flags.StringVar(&opts.scenesDir, "scenes-dir", defaultScenesDir, "directory of discoverable glTF scenes")
	flags.StringVar(&opts.gltf, "gltf", "", "load the scene from a .gltf/.glb file instead")
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML render config file")
	flags.IntVarP(&opts.width, "width", "w", 0, "image width in pixels (height follows the camera aspect)")
	flags.IntVar(&opts.samples, "samples", 0, "samples per pixel")
	flags.IntVar(&opts.depth, "depth", 0, "maximum bounce depth")
	flags.Int64Var(&opts.seed, "seed", renderer.DefaultConfig().Seed, "random seed for sampling and the final scene layout")
	flags.IntVarP(&opts.workers, "workers", "j", 0, "parallel workers (0 = one per CPU)")
	flags.IntVar(&opts.chunk, "chunk", 0, "pixels per work item")
	flags.BoolVar(&opts.sequential, "sequential", false, "render on a single goroutine")
	flags.BoolVar(&opts.linear, "linear", false, "write linear color without gamma correction")
	flags.StringVarP(&opts.output, "output", "o", "", "output image (.png, .jpg, .bmp, .tiff)")
	flags.BoolVar(&opts.preview, "preview", false, "show the finished image in the terminal")
	cmd.MarkFlagsMutuallyExclusive("scene", "gltf")
	return cmd
}

func newScenesCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "scenes",
		Short: "List the built-in scenes and glTF scenes found in --dir",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := core.NewWriterLogger(cmd.ErrOrStderr(), "scenes")
			response, err := scene.ListAllScenes(dir, logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, group := range response.Groups {
				fmt.Fprintf(out, "%s:\n", group.Name)
				for _, info := range group.Scenes {
					fmt.Fprintf(out, "  %-24s %s\n", info.ID, info.Description)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", defaultScenesDir, "directory to scan for .gltf and .glb files")
	return cmd
}

func newPreviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview <image>",
		Short: "Show an image file in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, _, err := loaders.LoadImage(args[0])
			if err != nil {
				return err
			}
			return preview.Show(cmd.Context(), img)
		},
	}
}

func newExportCmd() *cobra.Command {
	var sceneName string
	var seed int64
	cmd := &cobra.Command{
		Use:   "export <file.gltf|file.glb>",
		Short: "Write a built-in scene as glTF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scene.Create(sceneName, seed)
			if err != nil {
				return err
			}
			if err := s.Export(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d spheres to %s\n", s.GetPrimitiveCount(), args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&sceneName, "scene", "s", "final", "built-in scene")
	cmd.Flags().Int64Var(&seed, "seed", renderer.DefaultConfig().Seed, "layout seed for seeded scenes")
	return cmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print an example YAML config file",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), config.Example())
		},
	}
}

// runRender resolves settings, renders and saves the image
func runRender(ctx context.Context, cmd *cobra.Command, opts *renderOptions, stdout io.Writer, logger core.Logger) error {
	file := &config.File{}
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return err
		}
		file = loaded
	}

	changed := func(name string) bool { return cmd.Flags().Changed(name) }
	resolveSource(opts, file, changed)

	seed := opts.seed
	if file.Seed != nil && !changed("seed") {
		seed = *file.Seed
	}

	selected, err := createScene(opts, seed)
	if err != nil {
		return err
	}
	file.ApplyToScene(selected)

	// Explicit flags win over the config file
	if changed("width") {
		selected.SamplingConfig.Width = opts.width
	}
	if changed("samples") {
		selected.SamplingConfig.SamplesPerPixel = opts.samples
	}
	if changed("depth") {
		selected.SamplingConfig.MaxDepth = opts.depth
	}

	renderConfig := renderer.MergeConfig(selected.RenderConfig(seed), file.RenderOverride())
	if changed("workers") {
		renderConfig.NumWorkers = opts.workers
	}
	if changed("chunk") {
		renderConfig.ChunkSize = opts.chunk
	}
	renderConfig.Seed = seed
	if changed("linear") {
		renderConfig.Linear = opts.linear
	}
	renderConfig.Progress = progressLogger(logger)
	sequential := opts.sequential || (file.Render.Sequential && !changed("sequential"))

	output := opts.output
	if output == "" {
		output = file.Output
	}
	if output == "" {
		output = defaultOutputPath(selected.Name, time.Now())
	}
	if _, err := loaders.FormatFromPath(output); err != nil {
		return err
	}

	logger.Printf("scene %q: %d spheres, %dx%d, %d samples/pixel, depth %d, seed %d",
		selected.Name, selected.GetPrimitiveCount(), renderConfig.Width, renderConfig.Height,
		renderConfig.SamplesPerPixel, renderConfig.MaxDepth, seed)

	r := renderer.New(renderConfig, sequential, logger)
	img, stats, err := r.Render(ctx, selected.World, selected.Camera)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if err := loaders.SaveImage(output, img); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Render %s completed in %v (%.0f samples/s, %s, %d workers)\n",
		stats.RenderID, stats.Elapsed.Round(time.Millisecond), stats.SamplesPerSecond(), stats.Strategy, stats.Workers)
	fmt.Fprintf(stdout, "Render saved as %s\n", output)

	if opts.preview || (file.Preview && !changed("preview")) {
		return preview.Show(ctx, img)
	}
	return nil
}

// resolveSource lets a config file choose the scene unless a flag did
func resolveSource(opts *renderOptions, file *config.File, changed func(string) bool) {
	if changed("scene") || changed("gltf") {
		return
	}
	if file.GLTF != "" {
		opts.gltf = file.GLTF
	} else if file.Scene != "" {
		opts.scene = file.Scene
	}
}

func createScene(opts *renderOptions, seed int64) (*scene.Scene, error) {
	if opts.gltf != "" {
		return scene.NewGLTFScene(opts.gltf)
	}
	return scene.Resolve(opts.scene, seed, opts.scenesDir)
}

// defaultOutputPath returns output/<scene>/render_<timestamp>.png
func defaultOutputPath(sceneName string, now time.Time) string {
	return filepath.Join("output", sceneName, fmt.Sprintf("render_%s.png", now.Format("20060102_150405")))
}

// progressLogger reports every tenth of the image
func progressLogger(logger core.Logger) renderer.ProgressFunc {
	lastDecile := 0
	return func(completed, total int) {
		decile := completed * 10 / total
		if decile > lastDecile {
			lastDecile = decile
			logger.Printf("%d%% (%d/%d pixels)", decile*10, completed, total)
		}
	}
}
