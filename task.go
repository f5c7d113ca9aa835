package cvatconv

// Task descriptor of the backup archive.

// Fixed task settings.
const (
	taskVersion       = "1.0"
	taskStatus        = "annotation"
	taskChunkSize     = 3
	taskStorageMethod = "cache"
	taskStorage       = "local"
	taskSortingMethod = "lexicographical"
	taskChunkType     = "imageset"
)

// TaskLabel is a label definition of the task.
type TaskLabel struct {
	Name       string        `json:"name"`
	Color      string        `json:"color"` // "#rrggbb"
	Type       string        `json:"type"`
	Sublabels  []interface{} `json:"sublabels"`
	Attributes []interface{} `json:"attributes"`
}

// TaskData describes the media of the task.
type TaskData struct {
	ImageQuality  int    `json:"image_quality"`
	StartFrame    int    `json:"start_frame"`
	StopFrame     int    `json:"stop_frame"`
	ChunkSize     int    `json:"chunk_size"`
	StorageMethod string `json:"storage_method"`
	Storage       string `json:"storage"`
	SortingMethod string `json:"sorting_method"`
	ChunkType     string `json:"chunk_type"`
	DeletedFrames []int  `json:"deleted_frames"`
}

// TaskJob is a job covering a frame range of the task.
type TaskJob struct {
	StartFrame int    `json:"start_frame"`
	StopFrame  int    `json:"stop_frame"`
	Status     string `json:"status"`
}

// TaskDescriptor describes the imported dataset as a single task with a single job.
type TaskDescriptor struct {
	Name       string      `json:"name"`
	Labels     []TaskLabel `json:"labels"`
	BugTracker string      `json:"bug_tracker"`
	Status     string      `json:"status"`
	Subset     string      `json:"subset"`
	Version    string      `json:"version"`
	Data       TaskData    `json:"data"`
	Jobs       []TaskJob   `json:"jobs"`
}

// NewTaskDescriptor returns the descriptor of a task named name over numImages frames, with one
// label per class in classes.
func NewTaskDescriptor(name string, imageQuality, numImages int, classes ClassMap) TaskDescriptor {
	labels := make([]TaskLabel, len(classes))
	for i, c := range classes {
		labels[i] = TaskLabel{
			Name:       c.Name,
			Color:      c.HexColor(),
			Type:       c.Type,
			Sublabels:  []interface{}{},
			Attributes: []interface{}{},
		}
	}

	return TaskDescriptor{
		Name:    name,
		Labels:  labels,
		Status:  taskStatus,
		Version: taskVersion,
		Data: TaskData{
			ImageQuality:  imageQuality,
			StartFrame:    0,
			StopFrame:     numImages,
			ChunkSize:     taskChunkSize,
			StorageMethod: taskStorageMethod,
			Storage:       taskStorage,
			SortingMethod: taskSortingMethod,
			ChunkType:     taskChunkType,
			DeletedFrames: []int{},
		},
		Jobs: []TaskJob{{StartFrame: 0, StopFrame: numImages, Status: taskStatus}},
	}
}
