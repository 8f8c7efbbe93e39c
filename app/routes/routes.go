package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"taskhub/app/controllers"
)

// RegisterRoutes sets up all routes for the application.
func RegisterRoutes(router *mux.Router, tasks *controllers.TaskController, subtasks *controllers.SubtaskController, deps *controllers.DependencyController) {
	router.HandleFunc("/tasks", tasks.GetTasks).Methods(http.MethodGet)
	router.HandleFunc("/tasks", tasks.CreateTask).Methods(http.MethodPost)
	router.HandleFunc("/tasks/{taskID}", tasks.GetTaskByID).Methods(http.MethodGet)
	router.HandleFunc("/tasks/{taskID}", tasks.UpdateTask).Methods(http.MethodPut)
	router.HandleFunc("/tasks/{taskID}", tasks.DeleteTask).Methods(http.MethodDelete)
	router.HandleFunc("/tasks/{taskID}/complete", tasks.CompleteTask).Methods(http.MethodPost)

	router.HandleFunc("/tasks/{taskID}/subtasks", subtasks.GetSubtasks).Methods(http.MethodGet)
	router.HandleFunc("/tasks/{taskID}/subtasks", subtasks.CreateSubtask).Methods(http.MethodPost)
	router.HandleFunc("/tasks/{taskID}/subtasks/{subtaskID}", subtasks.UpdateSubtask).Methods(http.MethodPut)
	router.HandleFunc("/tasks/{taskID}/subtasks/{subtaskID}", subtasks.DeleteSubtask).Methods(http.MethodDelete)

	router.HandleFunc("/tasks/{taskID}/dependencies", deps.GetDependencies).Methods(http.MethodGet)
	router.HandleFunc("/tasks/{taskID}/dependencies", deps.AddDependency).Methods(http.MethodPost)
	router.HandleFunc("/tasks/{taskID}/dependencies/{dependsOnID}", deps.RemoveDependency).Methods(http.MethodDelete)
}
